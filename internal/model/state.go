package model

// StateSchemaVersion is bumped whenever AppState changes shape; snapshots
// taken under another version are not restored.
const StateSchemaVersion = 1

// AppState is everything the till keeps in memory between gateway calls.
type AppState struct {
	SchemaVersion int               `json:"schema_version"`
	CurrentPage   string            `json:"current_page"`
	Products      []Product         `json:"products"`
	Sales         []Sale            `json:"sales"`
	Settings      map[string]string `json:"settings"`
}

func NewAppState() *AppState {
	return &AppState{
		SchemaVersion: StateSchemaVersion,
		CurrentPage:   "dashboard",
		Products:      []Product{},
		Sales:         []Sale{},
		Settings:      map[string]string{},
	}
}

// Clone returns a structurally independent copy.
func (s *AppState) Clone() *AppState {
	if s == nil {
		return nil
	}
	c := &AppState{
		SchemaVersion: s.SchemaVersion,
		CurrentPage:   s.CurrentPage,
	}
	if s.Products != nil {
		c.Products = make([]Product, len(s.Products))
		for i, p := range s.Products {
			c.Products[i] = p.Clone()
		}
	}
	if s.Sales != nil {
		c.Sales = make([]Sale, len(s.Sales))
		for i, sale := range s.Sales {
			c.Sales[i] = sale.Clone()
		}
	}
	if s.Settings != nil {
		c.Settings = make(map[string]string, len(s.Settings))
		for k, v := range s.Settings {
			c.Settings[k] = v
		}
	}
	return c
}

// ProductIndex returns the slice position of id, or -1.
func (s *AppState) ProductIndex(id string) int {
	for i := range s.Products {
		if s.Products[i].ID == id {
			return i
		}
	}
	return -1
}
