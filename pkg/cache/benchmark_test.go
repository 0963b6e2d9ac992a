package cache

import (
	"fmt"
	"testing"

	"github.com/l3aro/go-vir-cfg/pkg/cfg"
)

func BenchmarkCacheGet(b *testing.B) {
	c := New(Options{MaxEntries: 1000})
	for i := 0; i < 1000; i++ {
		if err := c.Put(benchMethod(fmt.Sprintf("m%d", i))); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Get("m999"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCachePut(b *testing.B) {
	c := New(Options{MaxEntries: 1000})
	m := benchMethod("m")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Put(m); err != nil {
			b.Fatal(err)
		}
	}
}

func benchMethod(name string) *cfg.Method {
	m := cfg.NewMethod(name, 0, nil, nil, nil)
	prev, _ := m.AddBlock("entry", nil)
	for i := 0; i < 32; i++ {
		next, _ := m.AddBlock(fmt.Sprintf("bb%d", i), nil)
		m.SetSuccessor(prev, cfg.Goto{Target: next})
		prev = next
	}
	m.SetSuccessor(prev, cfg.Return{})
	return m
}
