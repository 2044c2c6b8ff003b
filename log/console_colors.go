package log

// ConsoleColorsType has a set of methods that return the color directive for each diagnostic level
type ConsoleColorsType struct{}

// Red is used for errors
func (ConsoleColorsType) Red() string {
	return "\033[31m"
}

// Yellow is used for warnings
func (ConsoleColorsType) Yellow() string {
	return "\033[33m"
}

// Blue is used for the verbose trace
func (ConsoleColorsType) Blue() string {
	return "\033[34m"
}

// Cyan is used for debug messages
func (ConsoleColorsType) Cyan() string {
	return "\033[36m"
}

// Reset returns original color directive
func (ConsoleColorsType) Reset() string {
	return "\033[0m"
}

var (
	// ConsoleColors is a ConsoleColorsType singleton
	ConsoleColors = ConsoleColorsType{}
)
