package client

import "context"

// Repository is the read side of the client record store
type Repository interface {
	List(ctx context.Context) ([]*ClientRecord, error)
}
