package assets

import (
	"context"
	"image"

	"github.com/spaghettifunk/vkcube/engine/assets/loaders"
	"golang.org/x/sync/errgroup"
)

type ShaderPair struct {
	Vertex   []uint32
	Fragment []uint32
}

type StartupAssets struct {
	Shaders ShaderPair
	Texture *image.NRGBA
}

// LoadShaders reads both shader stages concurrently.
func LoadShaders(ctx context.Context, vertPath, fragPath string) (ShaderPair, error) {
	var pair ShaderPair
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		pair.Vertex, err = loaders.LoadSPIRV(vertPath)
		return err
	})
	g.Go(func() (err error) {
		pair.Fragment, err = loaders.LoadSPIRV(fragPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return ShaderPair{}, err
	}
	return pair, nil
}

// LoadStartupAssets reads everything the renderer needs before it can draw.
func LoadStartupAssets(ctx context.Context, vertPath, fragPath, texturePath string) (*StartupAssets, error) {
	out := &StartupAssets{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Shaders, err = LoadShaders(gctx, vertPath, fragPath)
		return err
	})
	g.Go(func() (err error) {
		out.Texture, err = loaders.LoadTexture(texturePath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
