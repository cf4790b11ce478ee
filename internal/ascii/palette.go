package ascii

// ansi is the 16 colour terminal palette in a fixed order so that ties
// resolve deterministically.
var ansi = []struct {
	code string
	c    rgba
}{
	{"\x1b[30m", rgba{0, 0, 0, 0}},
	{"\x1b[31m", rgba{255, 0, 0, 0}},
	{"\x1b[32m", rgba{0, 255, 0, 0}},
	{"\x1b[33m", rgba{255, 255, 0, 0}},
	{"\x1b[34m", rgba{0, 0, 255, 0}},
	{"\x1b[35m", rgba{255, 0, 255, 0}},
	{"\x1b[36m", rgba{0, 255, 255, 0}},
	{"\x1b[37m", rgba{255, 255, 255, 0}},
	{"\x1b[30;1m", rgba{85, 85, 85, 0}},
	{"\x1b[31;1m", rgba{255, 85, 85, 0}},
	{"\x1b[32;1m", rgba{85, 255, 85, 0}},
	{"\x1b[33;1m", rgba{255, 255, 85, 0}},
	{"\x1b[34;1m", rgba{85, 85, 255, 0}},
	{"\x1b[35;1m", rgba{255, 85, 255, 0}},
	{"\x1b[36;1m", rgba{85, 255, 255, 0}},
	{"\x1b[37;1m", rgba{255, 255, 255, 0}},
}

// closest returns the escape of the palette entry nearest to c.
func closest(c rgba) string {
	best, code := -1, ""
	for _, e := range ansi {
		dr := int(c.r) - int(e.c.r)
		dg := int(c.g) - int(e.c.g)
		db := int(c.b) - int(e.c.b)
		d := dr*dr + dg*dg + db*db
		if best < 0 || d < best {
			best, code = d, e.code
		}
	}
	return code
}
