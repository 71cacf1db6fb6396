//go:build mage

package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"golang.org/x/image/draw"
)

type Build mg.Namespace

const (
	textureFile   = "textures/texture.png"
	textureSize   = 512
	checkerSquare = 64
)

// Compiles shaders/shader.vert and shaders/shader.frag to SPIR-V with glslc.
func (Build) Shaders() error {
	if _, err := executeCmd("glslc", withArgs("shaders/shader.vert", "-o", "shaders/vert.spv"), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("glslc", withArgs("shaders/shader.frag", "-o", "shaders/frag.spv"), withStream()); err != nil {
		return err
	}
	return nil
}

// Writes a checkerboard textures/texture.png unless one already exists.
func (Build) Texture() error {
	if _, err := os.Stat(textureFile); err == nil {
		fmt.Printf("%s exists, skipping\n", textureFile)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(textureFile), 0o755); err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, textureSize, textureSize))
	light := image.NewUniform(color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff})
	dark := image.NewUniform(color.RGBA{R: 0x30, G: 0x60, B: 0xa0, A: 0xff})
	for y := 0; y < textureSize; y += checkerSquare {
		for x := 0; x < textureSize; x += checkerSquare {
			src := light
			if (x/checkerSquare+y/checkerSquare)%2 == 1 {
				src = dark
			}
			draw.Draw(img, image.Rect(x, y, x+checkerSquare, y+checkerSquare), src, image.Point{}, draw.Src)
		}
	}

	f, err := os.Create(textureFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding %s: %w", textureFile, err)
	}
	fmt.Printf("wrote %s\n", textureFile)
	return nil
}
