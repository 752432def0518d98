// Command mapmachine renders OpenStreetMap data into styled SVG/PNG maps
// and tiles.
package main

import "github.com/MeKo-Tech/mapmachine/internal/cmd"

func main() {
	cmd.Execute()
}
