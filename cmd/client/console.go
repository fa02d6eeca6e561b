package main

import (
	"fmt"
	"io"
	"sync"
)

// console serializes output from the input loop and the bus handlers.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.w, format+"\n", args...)
}
