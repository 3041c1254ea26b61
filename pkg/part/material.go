package part

import "github.com/chazu/steelframe/pkg/shape"

// Material is a shared, immutable surface description. Instances compare
// materials by pointer.
type Material struct {
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Opacity     float64 `json:"opacity"`
	Transparent bool    `json:"transparent"`
}

// Palette maps shape roles to materials and holds the shared ghost
// material.
type Palette struct {
	Steel  *Material
	Wall   *Material
	Roof   *Material
	Wood   *Material
	Glass  *Material
	Handle *Material
	Ghost  *Material
}

// DefaultPalette returns the stock materials.
func DefaultPalette() *Palette {
	return &Palette{
		Steel:  &Material{Name: "steel", Color: "#999999", Opacity: 1},
		Wall:   &Material{Name: "wall", Color: "#eeeeee", Opacity: 1},
		Roof:   &Material{Name: "roof", Color: "#cc4444", Opacity: 1},
		Wood:   &Material{Name: "wood", Color: "#8b4513", Opacity: 1},
		Glass:  &Material{Name: "glass", Color: "#87ceeb", Opacity: 0.6, Transparent: true},
		Handle: &Material{Name: "handle", Color: "#c0c0c0", Opacity: 1},
		Ghost:  &Material{Name: "ghost", Color: "#cccccc", Opacity: 0.3, Transparent: true},
	}
}

// For returns the material for a role.
func (p *Palette) For(r shape.Role) *Material {
	switch r {
	case shape.RoleWall:
		return p.Wall
	case shape.RoleRoof:
		return p.Roof
	case shape.RoleWood:
		return p.Wood
	case shape.RoleGlass:
		return p.Glass
	case shape.RoleHandle:
		return p.Handle
	default:
		return p.Steel
	}
}
