// Package callgraph builds method call graphs from invoke instructions.
package callgraph

import (
	"fmt"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"

	"github.com/daimatz/jclass/pkg/classfile"
)

// NodeName returns the graph node of a method, e.g.
// "java/lang/String.length()I".
func NodeName(class, name, descriptor string) string {
	return class + "." + name + descriptor
}

// Build constructs a lattice.Graph from classes. Every method becomes a
// node and every invokevirtual, invokespecial, invokestatic and
// invokeinterface becomes an edge to the referenced method. Callees
// outside classes appear only as edge targets. invokedynamic has no static
// target and is skipped.
func Build(classes []*classfile.JavaClass) (*lattice.Graph, error) {
	g := &lattice.Graph{}
	for _, jc := range classes {
		if err := addClass(g, jc); err != nil {
			return nil, err
		}
	}
	g.Dedup()
	return g, nil
}

func addClass(g *lattice.Graph, jc *classfile.JavaClass) error {
	cp := jc.ConstantPool
	class, err := jc.ClassName()
	if err != nil {
		return err
	}
	for _, m := range jc.Methods {
		name, err := m.Name(cp)
		if err != nil {
			return fmt.Errorf("%s: method name: %w", class, err)
		}
		desc, err := m.Descriptor(cp)
		if err != nil {
			return fmt.Errorf("%s.%s: descriptor: %w", class, name, err)
		}
		caller := NodeName(class, name, desc)
		g.Nodes = append(g.Nodes, caller)

		code := m.Code()
		if code == nil {
			continue
		}
		insts, err := code.Instructions()
		if err != nil {
			return fmt.Errorf("%s: %w", caller, err)
		}
		for i := range insts {
			in := &insts[i]
			if !in.IsInvoke() || in.Opcode == classfile.OpInvokedynamic {
				continue
			}
			ref, err := cp.MemberRef(uint16(in.Index()))
			if err != nil {
				return fmt.Errorf("%s: %s at pc %d: %w", caller, in.Mnemonic(), in.PC, err)
			}
			g.Edges = append(g.Edges, lattice.Edge{
				Caller: caller,
				Callee: NodeName(ref.ClassName, ref.Name, ref.Descriptor),
			})
		}
	}
	return nil
}

// DOT renders g in Graphviz format.
func DOT(g *lattice.Graph, title string) string {
	return render.DOT(g, title)
}

// Callees returns the direct callees of node in edge order.
func Callees(g *lattice.Graph, node string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.Caller == node {
			out = append(out, e.Callee)
		}
	}
	return out
}

// Callers returns the methods calling node in edge order.
func Callers(g *lattice.Graph, node string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.Callee == node {
			out = append(out, e.Caller)
		}
	}
	return out
}
