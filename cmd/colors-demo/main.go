package main

import (
	"fmt"

	"github.com/akorshkov/aktools/pkg/color"
)

func main() {
	fmt.Println(color.MakeExamples())
}
