package orchestration

import (
	"context"
	"fmt"
)

// panicSafe turns a panic inside run into an error so a misbehaving tool
// can't take the conversation loop down with it.
func panicSafe(name string, run func(context.Context, string) (string, error)) func(context.Context, string) (string, error) {
	return func(ctx context.Context, arguments string) (response string, err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("%s panicked: %v", name, recovered)
			}
		}()

		return run(ctx, arguments)
	}
}
