package main

import (
	"flag"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/daimatz/jclass/pkg/classfile"
	"github.com/daimatz/jclass/pkg/classpath"
	"github.com/daimatz/jclass/pkg/config"
)

var log = commonlog.GetLogger("jclass")

// env carries the configuration and classpath shared by every command.
type env struct {
	configPath *string
	verbosity  *int

	cfg  *config.Config
	repo *classpath.Repository
}

func newEnv(fs *flag.FlagSet) *env {
	return &env{
		configPath: fs.String("config", "", "configuration file (default: nearest "+config.FileName+")"),
		verbosity:  fs.Int("v", -100, "log verbosity (default: from configuration)"),
	}
}

// setup loads the configuration and configures logging. It must run after
// the flag set is parsed.
func (e *env) setup() error {
	var err error
	if *e.configPath != "" {
		e.cfg, err = config.Load(*e.configPath)
	} else {
		e.cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return err
	}
	if *e.verbosity != -100 {
		e.cfg.Log.Verbosity = *e.verbosity
	}
	commonlog.Initialize(e.cfg.Log.Verbosity, e.cfg.Log.File)
	return nil
}

func (e *env) parseOptions() []classfile.Option {
	return []classfile.Option{classfile.WithDuplicateAttributes(e.cfg.Parse.AllowDuplicateAttributes)}
}

// repository opens the configured classpath on first use. java.base is
// appended when a jmod can be found.
func (e *env) repository() (*classpath.Repository, error) {
	if e.repo != nil {
		return e.repo, nil
	}
	paths := e.cfg.EntryPaths()
	jmod := e.cfg.JmodPath()
	if jmod == "" {
		jmod = classpath.FindJmod()
	}
	if jmod != "" {
		paths = append(paths, jmod)
	} else {
		log.Warning("java.base.jmod not found; set JAVA_HOME or JAVA_BASE_JMOD")
	}
	repo, err := classpath.Open(paths...)
	if err != nil {
		return nil, err
	}
	repo.SetParseOptions(e.parseOptions()...)
	e.repo = repo
	return repo, nil
}

// load reads a class from a .class file path or, failing that, from the
// classpath by name.
func (e *env) load(arg string) (*classfile.JavaClass, error) {
	if strings.HasSuffix(arg, ".class") {
		if _, err := os.Stat(arg); err == nil {
			log.Debugf("parsing %s", arg)
			return classfile.ParseFile(arg, e.parseOptions()...)
		}
	}
	repo, err := e.repository()
	if err != nil {
		return nil, err
	}
	return repo.LoadClass(arg)
}

func (e *env) format(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return e.cfg.Output.Format
}

func (e *env) close() {
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			log.Warningf("closing classpath: %v", err)
		}
	}
}
