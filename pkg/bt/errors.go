package bt

import (
	"errors"
	"fmt"

	fx "github.com/robotalks/tickprog/pkg/framework"
)

// CodeIssueFailed is returned to the host when a command can't be issued.
const CodeIssueFailed fx.Code = 0x0201

var (
	// ErrMessageSize indicates a payload which is not a Message.
	ErrMessageSize = errors.New("invalid message size")
)

// InvalidIDError indicates a message addressing a non-existent entity.
type InvalidIDError struct {
	ID byte
}

// Error implements error.
func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid entity id %d", e.ID)
}
