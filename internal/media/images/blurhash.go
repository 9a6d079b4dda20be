package images

import (
	"fmt"
	"image"
	"os"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
)

// blurHashSize is the target size for BlurHash computation.
// A 64px image hashes in milliseconds and looks the same as the full one.
const blurHashSize = 64

// BlurHash encodes img as a 4x3 component BlurHash.
func BlurHash(img image.Image) (string, error) {
	hash, err := blurhash.Encode(4, 3, resizeForBlurHash(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// ComputeBlurHash decodes the image file at path and returns its BlurHash.
func ComputeBlurHash(path string) (string, error) {
	file, err := os.Open(path) //#nosec G304 -- thumbnail paths are derived from item ids
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	return BlurHash(img)
}

// resizeForBlurHash shrinks img to fit in blurHashSize, keeping aspect ratio.
func resizeForBlurHash(img image.Image) image.Image {
	bounds := img.Bounds()
	srcWidth, srcHeight := bounds.Dx(), bounds.Dy()

	if srcWidth <= blurHashSize && srcHeight <= blurHashSize {
		return img
	}

	dstWidth, dstHeight := blurHashSize, blurHashSize
	if srcWidth > srcHeight {
		dstHeight = max(1, srcHeight*blurHashSize/srcWidth)
	} else {
		dstWidth = max(1, srcWidth*blurHashSize/srcHeight)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
