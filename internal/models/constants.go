package models

const (
	QuestionStartRegex = `^(\d+)\.`
	AnswerRegex        = `^Ans\.\s*\(?(\d)\)?`
	OptionMarkerRegex  = `\(([1-4])\)`
	OptionPairRegex    = `\(([1-4])\)\s*([^()]+)`
	SolutionPrefix     = "Sol."
)

const (
	SideLeft  = "Part 1"
	SideRight = "Part 2"
)

// DiagramFilenameFormat is the name a question's rendered region is saved under.
const DiagramFilenameFormat = "page%d_q%d_diagram.png"
