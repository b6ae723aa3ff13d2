// Package provider is a small generic framework for swappable backends.
//
// A Registry maps names to factories, a Manager instantiates the configured
// backends and a Selector picks one per call. Backends opt into lifecycle
// hooks by implementing Initializable or Closeable. Streaming results are
// exposed as a pull-based Iterator.
//
//	reg := provider.NewRegistry[transcription.Provider]()
//	reg.RegisterFactory("whisper", whisper.Factory())
//	mgr := provider.NewManager(reg, &provider.PrioritySelector[transcription.Provider]{
//	    Priority: []string{"whisper", "fasterwhisper"},
//	})
//	_ = mgr.Initialize("whisper", map[string]any{"url": "http://localhost:8387"})
//	p, err := mgr.Get(ctx)
package provider
