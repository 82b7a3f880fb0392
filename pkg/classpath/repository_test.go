package classpath

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/daimatz/jclass/pkg/classfile"
)

func classBytes(t *testing.T, name, super string) []byte {
	t.Helper()
	b, err := classfile.NewJavaClass(name, super, classfile.AccPublic|classfile.AccSuper).Bytes()
	if err != nil {
		t.Fatalf("building %s: %v", name, err)
	}
	return b
}

func writeZip(t *testing.T, path string, header []byte, files map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.Write(header); err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

// fixture lays out pkg/A in a directory, pkg/B in a jar and
// java/lang/Object in a jmod.
func fixture(t *testing.T) *Repository {
	t.Helper()
	root := t.TempDir()

	dir := filepath.Join(root, "classes")
	if err := os.MkdirAll(filepath.Join(dir, "pkg"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pkg", "A.class"), classBytes(t, "pkg/A", "java/lang/Object"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("not a class"), 0o644); err != nil {
		t.Fatal(err)
	}

	jar := filepath.Join(root, "lib.jar")
	writeZip(t, jar, nil, map[string][]byte{
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
		"pkg/B.class":          classBytes(t, "pkg/B", "pkg/A"),
		"pkg/A.class":          classBytes(t, "pkg/A", "pkg/Shadowed"),
	})

	jmod := filepath.Join(root, "java.base.jmod")
	writeZip(t, jmod, jmodMagic, map[string][]byte{
		"classes/java/lang/Object.class": classBytes(t, "java/lang/Object", ""),
		"classes/module-info.class":      classBytes(t, "module-info", ""),
		"lib/libjava.so":                 {0x7F, 'E', 'L', 'F'},
	})

	repo, err := Open(dir, jar, jmod)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestLoadClass(t *testing.T) {
	repo := fixture(t)

	tests := []struct {
		name string
		want string
	}{
		{"pkg/A", "pkg/A"},
		{"pkg.B", "pkg/B"},
		{"java/lang/Object.class", "java/lang/Object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jc, err := repo.LoadClass(tt.name)
			if err != nil {
				t.Fatalf("failed to load %s: %v", tt.name, err)
			}
			name, err := jc.ClassName()
			if err != nil {
				t.Fatalf("failed to get class name: %v", err)
			}
			if name != tt.want {
				t.Errorf("class name: got %q, want %q", name, tt.want)
			}
		})
	}

	// ディレクトリが jar より先に検索される
	a, err := repo.LoadClass("pkg/A")
	if err != nil {
		t.Fatal(err)
	}
	if super, _ := a.SuperClassName(); super != "java/lang/Object" {
		t.Errorf("pkg/A came from the wrong entry: super %q", super)
	}

	_, err = repo.LoadClass("pkg/Missing")
	if !errors.Is(err, ErrClassNotFound) {
		t.Errorf("missing class: got %v, want ErrClassNotFound", err)
	}
}

func TestClassCache(t *testing.T) {
	repo := fixture(t)

	cf1, err := repo.LoadClass("pkg/B")
	if err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	cf2, err := repo.LoadClass("pkg.B")
	if err != nil {
		t.Fatalf("second load failed: %v", err)
	}
	if cf1 != cf2 {
		t.Error("expected same pointer from cache")
	}

	repo.Remove("pkg/B")
	cf3, err := repo.LoadClass("pkg/B")
	if err != nil {
		t.Fatal(err)
	}
	if cf3 == cf1 {
		t.Error("expected a fresh parse after Remove")
	}

	custom := classfile.NewJavaClass("pkg/Generated", "java/lang/Object", classfile.AccPublic)
	if err := repo.Store(custom); err != nil {
		t.Fatal(err)
	}
	if got, err := repo.LoadClass("pkg/Generated"); err != nil || got != custom {
		t.Errorf("stored class: got %v, %v", got, err)
	}
	repo.Clear()
	if _, err := repo.LoadClass("pkg/Generated"); !errors.Is(err, ErrClassNotFound) {
		t.Errorf("after Clear: got %v, want ErrClassNotFound", err)
	}
}

func TestConcurrentLoad(t *testing.T) {
	repo := fixture(t)

	var wg sync.WaitGroup
	got := make([]*classfile.JavaClass, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jc, err := repo.LoadClass("java/lang/Object")
			if err != nil {
				t.Errorf("goroutine %d: %v", i, err)
				return
			}
			got[i] = jc
		}(i)
	}
	wg.Wait()
	for i := range got {
		if got[i] != got[0] {
			t.Fatalf("goroutine %d saw a different instance", i)
		}
	}
}

func TestClassNames(t *testing.T) {
	repo := fixture(t)
	names, err := repo.ClassNames()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"java/lang/Object", "module-info", "pkg/A", "pkg/B"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ClassNames: got %v, want %v", names, want)
	}
}

func TestSuperclasses(t *testing.T) {
	repo := fixture(t)
	b, err := repo.LoadClass("pkg/B")
	if err != nil {
		t.Fatal(err)
	}
	chain, err := repo.Superclasses(b)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, jc := range chain {
		n, _ := jc.ClassName()
		names = append(names, n)
	}
	if want := []string{"pkg/A", "java/lang/Object"}; !reflect.DeepEqual(names, want) {
		t.Errorf("superclasses: got %v, want %v", names, want)
	}
}

func TestParseOptions(t *testing.T) {
	repo := fixture(t)
	called := false
	repo.SetParseOptions(classfile.WithAttributeReader("Anything", func(h classfile.AttributeHeader, length uint32, r *classfile.Reader, cp *classfile.ConstantPool) (classfile.Attribute, error) {
		called = true
		return nil, nil
	}))
	if _, err := repo.LoadClass("pkg/A"); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("reader called for a class without that attribute")
	}
}

func TestBadJmod(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jmod")
	writeZip(t, path, nil, map[string][]byte{"classes/X.class": {0}})
	e := NewJmodEntry(path)
	if _, err := e.ReadClass("X"); err == nil {
		t.Error("jmod without header: got nil error")
	}
}

func TestOpenEntry(t *testing.T) {
	if _, err := OpenEntry(filepath.Join(t.TempDir(), "nope.jar")); err == nil {
		t.Error("missing path: got nil error")
	}
	e, err := OpenEntry(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*DirEntry); !ok {
		t.Errorf("directory: got %T, want *DirEntry", e)
	}
}

func TestFindJmod(t *testing.T) {
	t.Setenv("JAVA_BASE_JMOD", "/opt/jdk/jmods/java.base.jmod")
	if got := FindJmod(); got != "/opt/jdk/jmods/java.base.jmod" {
		t.Errorf("FindJmod with JAVA_BASE_JMOD: got %q", got)
	}

	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, "jmods"), 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(home, "jmods", "java.base.jmod")
	if err := os.WriteFile(want, jmodMagic, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JAVA_BASE_JMOD", "")
	t.Setenv("JAVA_HOME", home)
	if got := FindJmod(); got != want {
		t.Errorf("FindJmod with JAVA_HOME: got %q, want %q", got, want)
	}
}
