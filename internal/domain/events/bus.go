// Package events is a tiny in-process pub/sub bus. Components publish typed
// lifecycle events; app-layer subscribers react (board refresh, logging)
// without the core packages knowing about Discord UI.
package events

import (
	"reflect"
	"sync"
)

type subscriber func(any)

var (
	mu   sync.RWMutex
	subs = map[string][]subscriber{} // type name -> subscribers
)

func typeNameOf[T any]() string {
	var zero *T
	rt := reflect.TypeOf(zero).Elem() // *T -> T, without dereferencing nil
	return rt.PkgPath() + "." + rt.Name()
}

// Subscribe registers fn for events of type T and returns a cancel func.
func Subscribe[T any](fn func(T)) func() {
	name := typeNameOf[T]()
	wrapped := func(v any) {
		if ev, ok := v.(T); ok {
			fn(ev)
		}
	}

	mu.Lock()
	subs[name] = append(subs[name], wrapped)
	idx := len(subs[name]) - 1
	mu.Unlock()

	// Cancel nils the slot instead of splicing the slice: indices held by
	// other cancel funcs for the same type must stay valid after this one
	// runs. Publish skips nil slots.
	return func() {
		mu.Lock()
		defer mu.Unlock()
		ss := subs[name]
		if idx >= 0 && idx < len(ss) {
			ss[idx] = nil
		}
	}
}

// Publish delivers ev synchronously to every subscriber of its type.
// A panicking subscriber never takes down the publisher.
func Publish[T any](ev T) {
	name := typeNameOf[T]()
	mu.RLock()
	ss := append([]subscriber(nil), subs[name]...)
	mu.RUnlock()
	for _, s := range ss {
		if s == nil {
			continue // cancelled
		}
		func() {
			defer func() {
				_ = recover()
			}()
			s(ev)
		}()
	}
}
