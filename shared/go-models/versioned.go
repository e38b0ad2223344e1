// go-models/versioned.go
package models

// Versioned carries the optimistic-lock counter. Embed it anonymously.
// Every conditional status transition bumps it.
type Versioned struct {
	RowVersion int64 `json:"row_version"`
}

func (v *Versioned) GetRowVersion() int64 { return v.RowVersion }
