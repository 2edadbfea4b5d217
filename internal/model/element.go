package model

// UiElement is one actionable node reduced to what a controller needs to
// act on it. IDs are only meaningful inside the snapshot that produced them.
type UiElement struct {
	ID     int    `yaml:"id"    json:"id"`
	Class  string `yaml:"class" json:"class"`
	Text   string `yaml:"text"  json:"text"`
	Bounds [4]int `yaml:"bounds,flow" json:"bounds"` // [x, y, width, height]
}

// UiSnapshot pairs the element list of one traversal with the frame
// captured right after it. It is never mutated after construction.
type UiSnapshot struct {
	Elements  []UiElement `yaml:"uiTree"    json:"uiTree"`
	ImagePath string      `yaml:"imagePath" json:"imagePath"`
}

// Center returns the midpoint of the element's bounds, which is where a
// tap aimed at the element should land.
func (e UiElement) Center() (int, int) {
	return e.Bounds[0] + e.Bounds[2]/2, e.Bounds[1] + e.Bounds[3]/2
}

// FindByID returns the element with the given snapshot ID, or nil.
func FindByID(elements []UiElement, id int) *UiElement {
	for i := range elements {
		if elements[i].ID == id {
			return &elements[i]
		}
	}
	return nil
}
