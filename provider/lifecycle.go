package provider

import "context"

// Initializable is implemented by providers that need setup before their
// first request, such as loading a model or probing a binary.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable is implemented by providers that hold resources needing
// explicit release. Manager.Close calls it on shutdown.
type Closeable interface {
	Close(ctx context.Context) error
}
