package models

import (
	"strings"
	"time"
)

// MenuItem is a single dish on the menu. JSON names follow the public wire format.
type MenuItem struct {
	ID          int64     `yaml:"id" json:"id"`
	Name        string    `yaml:"nome" json:"nome"`
	Description string    `yaml:"descricao" json:"descricao"`
	Price       float64   `yaml:"preco" json:"preco"`
	Category    string    `yaml:"categoria" json:"categoria"`
	Image       string    `yaml:"imagem" json:"imagem"`
	Order       int       `yaml:"ordem" json:"ordem"`
	Featured    bool      `yaml:"destaque" json:"destaque"`
	Available   bool      `yaml:"disponivel" json:"disponivel"`
	Active      bool      `yaml:"is_active" json:"isActive"`
	CreatedAt   time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updatedAt"`
}

// Visible reports whether the item may appear on the public menu.
func (i MenuItem) Visible() bool {
	return i.Active && i.Available
}

// MenuItemInput is the payload of a create. Price and Available are pointers
// so an omitted field can be told apart from a zero value.
type MenuItemInput struct {
	Name        string   `json:"nome"`
	Description string   `json:"descricao"`
	Price       *float64 `json:"preco"`
	Category    string   `json:"categoria"`
	Image       string   `json:"imagem"`
	Order       int      `json:"ordem"`
	Featured    bool     `json:"destaque"`
	Available   *bool    `json:"disponivel"`
}

// Item builds the new menu item. Omitted optional fields get the menu
// defaults; new items are always active and available unless stated otherwise.
func (in MenuItemInput) Item() MenuItem {
	item := MenuItem{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Image:       in.Image,
		Order:       in.Order,
		Featured:    in.Featured,
		Available:   true,
		Active:      true,
	}
	if in.Price != nil {
		item.Price = *in.Price
	}
	if in.Available != nil {
		item.Available = *in.Available
	}
	if item.Image == "" {
		item.Image = DefaultItemImage
	}
	if item.Order == 0 {
		item.Order = DefaultItemOrder
	}
	return item
}

// MenuItemPatch is a partial update. Nil fields are left untouched.
type MenuItemPatch struct {
	Name        *string  `json:"nome,omitempty"`
	Description *string  `json:"descricao,omitempty"`
	Price       *float64 `json:"preco,omitempty"`
	Category    *string  `json:"categoria,omitempty"`
	Image       *string  `json:"imagem,omitempty"`
	Order       *int     `json:"ordem,omitempty"`
	Featured    *bool    `json:"destaque,omitempty"`
	Available   *bool    `json:"disponivel,omitempty"`
	Active      *bool    `json:"isActive,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p MenuItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Category == nil &&
		p.Image == nil && p.Order == nil && p.Featured == nil && p.Available == nil && p.Active == nil
}

// Apply returns a copy of item with the patch merged in.
func (p MenuItemPatch) Apply(item MenuItem) MenuItem {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Image != nil {
		item.Image = *p.Image
	}
	if p.Order != nil {
		item.Order = *p.Order
	}
	if p.Featured != nil {
		item.Featured = *p.Featured
	}
	if p.Available != nil {
		item.Available = *p.Available
	}
	if p.Active != nil {
		item.Active = *p.Active
	}
	return item
}

// Merge layers other on top of p; fields set in other win.
func (p MenuItemPatch) Merge(other MenuItemPatch) MenuItemPatch {
	if other.Name != nil {
		p.Name = other.Name
	}
	if other.Description != nil {
		p.Description = other.Description
	}
	if other.Price != nil {
		p.Price = other.Price
	}
	if other.Category != nil {
		p.Category = other.Category
	}
	if other.Image != nil {
		p.Image = other.Image
	}
	if other.Order != nil {
		p.Order = other.Order
	}
	if other.Featured != nil {
		p.Featured = other.Featured
	}
	if other.Available != nil {
		p.Available = other.Available
	}
	if other.Active != nil {
		p.Active = other.Active
	}
	return p
}

// AsPatch returns a patch that sets every editable field of the item.
func (i MenuItem) AsPatch() MenuItemPatch {
	return MenuItemPatch{
		Name:        &i.Name,
		Description: &i.Description,
		Price:       &i.Price,
		Category:    &i.Category,
		Image:       &i.Image,
		Order:       &i.Order,
		Featured:    &i.Featured,
		Available:   &i.Available,
		Active:      &i.Active,
	}
}

// Deactivation is the patch used for soft deletes.
func Deactivation() MenuItemPatch {
	off := false
	return MenuItemPatch{Active: &off, Available: &off}
}

// Fingerprint is the cheap summary served to pollers.
type Fingerprint struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	ItemCount int       `json:"itemCount"`
}

// WriteResult describes the outcome of a menu mutation.
// Degraded means the change lives only in the local cache.
type WriteResult struct {
	Item     MenuItem `json:"item"`
	Degraded bool     `json:"degraded"`
	Warning  string   `json:"warning,omitempty"`
}

// SyncStatus is a point-in-time view of the sync layer for health reporting.
type SyncStatus struct {
	Backend      string    `json:"backend"`
	Source       string    `json:"source"`
	BreakerState string    `json:"breakerState"`
	Failures     int       `json:"failures"`
	CachedItems  int       `json:"cachedItems"`
	LastModified time.Time `json:"lastModified"`
}
