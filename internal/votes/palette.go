package votes

// GenerationPalette maps a Pokémon generation to its colour.
func GenerationPalette() map[int]string {
	return map[int]string{
		1: "#ACD36C",
		2: "#DCD677",
		3: "#9CD7C8",
		4: "#B7A3C3",
		5: "#9FCADF",
		6: "#DD608C",
		7: "#E89483",
	}
}

// TypePalette maps a Pokémon type to its colour.
func TypePalette() map[string]string {
	return map[string]string{
		"normal":   "#A8A878",
		"fire":     "#F08030",
		"fighting": "#C03028",
		"water":    "#6890F0",
		"flying":   "#A890F0",
		"grass":    "#78C850",
		"poison":   "#A040A0",
		"electric": "#F8D030",
		"ground":   "#E0C068",
		"psychic":  "#F85888",
		"rock":     "#B8A038",
		"ice":      "#98D8D8",
		"bug":      "#A8B820",
		"dragon":   "#7038F8",
		"ghost":    "#705898",
		"dark":     "#705848",
		"steel":    "#B8B8D0",
		"fairy":    "#EE99AC",
	}
}
