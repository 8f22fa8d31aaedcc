package storage

import (
	"context"
)

//Saver writes an object to a durable store
type Saver interface {
	Save(ctx context.Context, key string, data []byte) error
}
