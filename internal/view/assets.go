package view

import "sync"

// AssetKind is the role of a document head asset.
type AssetKind uint8

const (
	AssetStylesheet AssetKind = iota
	AssetIcon
	AssetScript
)

func (k AssetKind) String() string {
	switch k {
	case AssetStylesheet:
		return "stylesheet"
	case AssetIcon:
		return "icon"
	case AssetScript:
		return "script"
	default:
		return "unknown"
	}
}

// Asset is one resource referenced from the document head.
type Asset struct {
	Kind AssetKind
	Href string
	// Type is the MIME type, used for icons.
	Type string
}

// AssetRegistry collects the head assets a render needs. It only grows;
// an asset required twice is kept once at its first position.
type AssetRegistry struct {
	mu     sync.Mutex
	assets []Asset
	seen   map[Asset]bool
}

// NewAssetRegistry returns an empty registry.
func NewAssetRegistry() *AssetRegistry {
	return &AssetRegistry{seen: make(map[Asset]bool)}
}

// Require adds a and reports whether it was new.
func (r *AssetRegistry) Require(a Asset) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[a] {
		return false
	}
	r.seen[a] = true
	r.assets = append(r.assets, a)
	return true
}

// Assets returns the registered assets in registration order.
func (r *AssetRegistry) Assets() []Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Asset(nil), r.assets...)
}

// Len is the number of registered assets.
func (r *AssetRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.assets)
}

// Fork returns a registry seeded with the current assets. Site-wide assets
// are registered once and forked for every request.
func (r *AssetRegistry) Fork() *AssetRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := &AssetRegistry{
		assets: append([]Asset(nil), r.assets...),
		seen:   make(map[Asset]bool, len(r.seen)),
	}
	for a := range r.seen {
		f.seen[a] = true
	}
	return f
}
