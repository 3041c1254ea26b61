package catalog

// Default returns the stock catalog: steel tracks and studs, generic wall
// blocks, roof panels, door and window openings, the two interlocking
// trama panels and the gable wall.
func Default() *Registry {
	return NewRegistry(
		// Steel, millimetres.
		Profile{ID: "U90", Name: "Track U90", Kind: KindTrack, Width: 90, Flange: 30, Thickness: 0.95, Color: "#cccccc"},
		Profile{ID: "U140", Name: "Track U140", Kind: KindTrack, Width: 140, Flange: 30, Thickness: 0.95, Color: "#eeeeee"},
		Profile{ID: "C90", Name: "Stud C90", Kind: KindStud, Width: 90, Flange: 40, Lip: 12, Thickness: 0.95, Color: "#aaffaa"},
		Profile{ID: "C140", Name: "Stud C140", Kind: KindStud, Width: 140, Flange: 40, Lip: 12, Thickness: 0.95, Color: "#aaffaa"},
		Profile{ID: "STEEL_C", Name: "Lipped channel", Kind: KindSteelGeneric, Width: 90, Flange: 40, Lip: 12, Thickness: 0.95, Color: "#999999"},
		Profile{ID: "STEEL_U", Name: "Plain channel", Kind: KindSteelGeneric, Width: 90, Flange: 40, Thickness: 0.95, Color: "#999999"},

		// Centimetres.
		Profile{ID: "WALL_GENERIC", Name: "Wall block", Kind: KindBox, Width: 61, Thickness: 10, Length: 280, Color: "#eeeeee"},

		// Millimetres.
		Profile{ID: "ROOF_PANEL", Name: "Sandwich roof panel", Kind: KindPlate, Width: 1000, Flange: 30, Thickness: 0.5, Color: "#cc4444"},
		Profile{ID: "DOOR_STD", Name: "Door 80", Kind: KindOpening, Opening: OpeningDoor, Width: 800, Height: 2100, Thickness: 100, Color: "#8b4513"},
		Profile{ID: "WINDOW_STD", Name: "Window 120x120", Kind: KindOpening, Opening: OpeningWindow, Width: 1200, Height: 1200, Thickness: 15, Color: "#87ceeb"},

		// Centimetres.
		Profile{
			ID: "TRAMA_1", Name: "Trama 1 (teeth right)", Kind: KindNotchedPanel,
			Width: 61, Thickness: 9, Length: 280, NotchDepth: 30.5,
			NotchSide: SideRight, StartPattern: PatternTooth, Color: "#cccccc",
		},
		Profile{
			ID: "TRAMA_2", Name: "Trama 2 (teeth left)", Kind: KindNotchedPanel,
			Width: 61, Thickness: 9, Length: 280, NotchDepth: 30.5,
			NotchSide: SideLeft, StartPattern: PatternGap, Color: "#aaaaaa",
		},
		Profile{ID: "OITAO", Name: "Gable wall", Kind: KindGable, Width: 300, Length: 280, Thickness: 10, CutType: "center", Color: "#ddddcc"},
	)
}
