package detection

// Component is a connected group of edge pixels.
type Component struct {
	Bounds Bounds `json:"bounds"`
	Pixels int    `json:"pixels"`
}

// Rectangularity compares the component's pixel count with the perimeter of
// its bounding box: close to 1.0 for a clean one-pixel frame, lower for open
// shapes and for textured fills. The result is clamped to [0,1].
func (c Component) Rectangularity() float64 {
	perimeter := 2 * (c.Bounds.Width() + c.Bounds.Height())
	if perimeter == 0 {
		return 0
	}
	diff := c.Pixels - perimeter
	if diff < 0 {
		diff = -diff
	}
	r := 1.0 - float64(diff)/float64(perimeter)
	if r < 0 {
		return 0
	}
	return r
}

type point struct{ x, y int }

// FindComponents groups 8-connected edge pixels. Components with fewer than
// minPixels pixels are dropped as noise. Order follows the first pixel of
// each component in row-major scan order.
func FindComponents(edges EdgeMap, minPixels int) []Component {
	width, height := edges.Size()
	visited := make([][]bool, height)
	for y := range visited {
		visited[y] = make([]bool, width)
	}

	var components []Component
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !edges[y][x] || visited[y][x] {
				continue
			}
			c := floodFill(edges, visited, x, y, width, height)
			if c.Pixels >= minPixels {
				components = append(components, c)
			}
		}
	}
	return components
}

// floodFill walks one component with an explicit stack.
func floodFill(edges EdgeMap, visited [][]bool, startX, startY, width, height int) Component {
	c := Component{Bounds: Bounds{X1: startX, Y1: startY, X2: startX + 1, Y2: startY + 1}}
	stack := []point{{startX, startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.x < 0 || p.x >= width || p.y < 0 || p.y >= height {
			continue
		}
		if visited[p.y][p.x] || !edges[p.y][p.x] {
			continue
		}
		visited[p.y][p.x] = true
		c.Pixels++
		c.Bounds.X1 = minInt(c.Bounds.X1, p.x)
		c.Bounds.Y1 = minInt(c.Bounds.Y1, p.y)
		c.Bounds.X2 = maxInt(c.Bounds.X2, p.x+1)
		c.Bounds.Y2 = maxInt(c.Bounds.Y2, p.y+1)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, point{p.x + dx, p.y + dy})
			}
		}
	}
	return c
}
