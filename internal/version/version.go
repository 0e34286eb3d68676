package version

import "fmt"

const (
	Version = "v0.1.0"

	colorReset    = "\033[0m"
	colorCyanBold = "\033[36;1m"
)

// asciiArtTpl returns the ASCII art of sealite.
func asciiArtTpl() string {
	asciiArt := `
                 ___ __     
   ________  ____ _/ (_) /____ 
  / ___/ _ \/ __ ` + "`" + `/ / / __/ _ \
 (__  )  __/ /_/ / / / /_/  __/
/____/\___/\__,_/_/_/\__/\___/
%s ` + Version + `
Encrypted SQLite databases from Go`

	asciiArt = asciiArt[1:]                          // This just removes the first newline character
	asciiArt = colorCyanBold + asciiArt + colorReset // Add color to the ASCII art

	return asciiArt
}

// ShellVersion returns the version banner of the sealite shell.
func ShellVersion() string {
	return fmt.Sprintf(asciiArtTpl(), "Shell")
}

// CheckVersion returns the version banner of the engine check.
func CheckVersion() string {
	return fmt.Sprintf(asciiArtTpl(), "Engine check")
}

// BenchVersion returns the version banner of the benchmark.
func BenchVersion() string {
	return fmt.Sprintf(asciiArtTpl(), "Benchmark")
}
