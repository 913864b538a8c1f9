package analysis

import (
	"fmt"

	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/ricenet"
)

var rn *ricenet.RiceNet // RiceNet interpreter

// initializeRiceNet initializes the RiceNet interpreter if not already initialized.
func initializeRiceNet(settings *conf.Settings) error {
	// Initialize the RiceNet interpreter only if not already initialized
	if rn == nil {
		var err error
		rn, err = ricenet.NewRiceNet(settings)
		if err != nil {
			return fmt.Errorf("failed to initialize RiceNet: %w", err)
		}
	}
	return nil
}
