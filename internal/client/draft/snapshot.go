package draft

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
)

// serialize renders d deterministically. encoding/json sorts map keys at
// every level, so equal drafts always produce equal strings.
func serialize(d models.Fields) (string, error) {
	if d == nil {
		d = models.Fields{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("serialize draft: %w", err)
	}
	return string(b), nil
}
