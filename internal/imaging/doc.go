// Package imaging reads and writes image files for the cartoon server.
//
// It wraps the standard library codecs, golang.org/x/image and
// github.com/disintegration/imaging behind a small set of functions:
// decoding with format sniffing and EXIF orientation, atomic saving with the
// format chosen by file extension, display-sized previews, and palette
// reports.
//
// # Formats
//
// Decoding accepts PNG, JPEG, GIF, BMP, TIFF and WebP, detected from the file
// contents. Saving accepts .png, .jpg/.jpeg, .gif, .bmp and .tif/.tiff.
//
// # Transparency
//
// Images are processed as opaque 8-bit RGB. ToRGB drops alpha without
// blending, and Save always writes the flattened image.
//
// # Error Handling
//
// Read failures are returned as *DecodeError and write failures as
// *EncodeError. Both unwrap to the underlying cause:
//
//	img, info, err := imaging.Load(path)
//	var derr *imaging.DecodeError
//	if errors.As(err, &derr) {
//	    log.Printf("unreadable: %s", derr.Path)
//	}
//
// # Thread Safety
//
// The package holds no state. Every function may be called concurrently.
package imaging
