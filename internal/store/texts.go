package store

// defaultTexts is the passage corpus races draw from
var defaultTexts = []string{
	"The quick brown fox jumps over the lazy dog while the farmer watches from the porch.",
	"Small habits repeated every morning end up shaping the whole direction of a year.",
	"A calm sea never made a skilled sailor, so keep your hands steady when the wind rises.",
	"Good software is written twice: once to understand the problem and once to solve it.",
	"Rain tapped against the window as the last train pulled slowly out of the station.",
	"Patience is not the ability to wait but the ability to keep a good attitude while waiting.",
	"Every mountain trail starts flat, and the climb only begins once you stop looking back.",
	"She packed a notebook, two pencils and a map that had never been folded the same way twice.",
	"Curiosity builds bridges between what we already know and what we have yet to learn.",
	"The library was quiet except for the soft turning of pages and a clock that ran slow.",
	"Practice does not make perfect, it makes permanent, so practice the right way.",
	"Lanterns swayed over the night market as vendors called out prices for warm bread.",
}
