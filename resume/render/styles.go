package render

// RunStyle captures the inline run formatting used by the renderer.
// Size is in half-points.
type RunStyle struct {
	Bold bool
	Size int
}

const (
	FontFamily  = "Arial"
	NameSize    = 32
	HeadingSize = 22
	BodySize    = 20
)

// Page geometry in twentieths of a point (US Letter).
const (
	pageWidth     = 12240
	pageHeight    = 15840
	marginTop     = 720
	marginBottom  = 720
	marginLeft    = 1080
	marginRight   = 1080
	indentQuarter = 360
)

// StyleMap centralizes the formatting for each kind of resume line.
var StyleMap = map[string]RunStyle{
	"name": {
		Bold: true,
		Size: NameSize,
	},
	"sectionHeading": {
		Bold: true,
		Size: HeadingSize,
	},
	"entryLine": {
		Bold: true,
		Size: BodySize,
	},
	"label": {
		Bold: true,
		Size: BodySize,
	},
	"body": {
		Size: BodySize,
	},
}
