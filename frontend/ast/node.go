package ast

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"
)

// Node is the base interface for all AST nodes.
type Node interface {
	Positioner
	Hash() uint64
}

// Expr is the interface for all expression nodes in the AST.
type Expr interface {
	Node
	exprNode() // Marker method to distinguish expressions
}

// Stmt is the interface for all statement nodes in the AST.
type Stmt interface {
	Node
	stmtNode() // Marker method to distinguish statements
}

// File is a single analysed source unit: top-level statements and function declarations
type File struct {
	Range
	Name  string
	Stmts []Stmt
}

// Hash returns a hash value for the File, based on its structural characteristics
func (f *File) Hash() uint64 {
	h := newHasher("File", f.Range).str(f.Name)
	for _, stmt := range f.Stmts {
		h.node(stmt)
	}
	return h.sum()
}

// Functions returns the function declarations at the top level of the file
func (f *File) Functions() []*Function {
	var fns []*Function
	for _, stmt := range f.Stmts {
		if fn, ok := stmt.(*Function); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// hasher builds structural hashes the same way for every node kind:
// a kind tag, the node's range, then its children in declaration order
type hasher struct {
	h   hash.Hash64
	arr []byte
}

func newHasher(kind string, r Range) *hasher {
	h := &hasher{h: fnv.New64a(), arr: []byte(kind)}
	h.arr = binary.LittleEndian.AppendUint64(h.arr, r.Hash())
	return h
}

func (h *hasher) str(s string) *hasher {
	_, _ = h.h.Write([]byte(s))
	return h
}

func (h *hasher) int(i int64) *hasher {
	h.arr = binary.LittleEndian.AppendUint64(h.arr, uint64(i))
	return h
}

func (h *hasher) float(f float64) *hasher {
	h.arr = binary.LittleEndian.AppendUint64(h.arr, math.Float64bits(f))
	return h
}

func (h *hasher) bool(b bool) *hasher {
	if b {
		h.arr = append(h.arr, 1)
	} else {
		h.arr = append(h.arr, 0)
	}
	return h
}

// node is nil-safe, as optional children are left nil
func (h *hasher) node(n Node) *hasher {
	if n == nil || isNilNode(n) {
		h.arr = append(h.arr, 0)
		return h
	}
	h.arr = binary.LittleEndian.AppendUint64(h.arr, n.Hash())
	return h
}

func (h *hasher) sum() uint64 {
	_, _ = h.h.Write(h.arr)
	return h.h.Sum64()
}

func isNilNode(n Node) bool {
	switch n := n.(type) {
	case *Block:
		return n == nil
	case *TypeHint:
		return n == nil
	}
	return false
}
