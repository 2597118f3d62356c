// Package mask binds mask images to photos before matching.
//
// Masks are produced by an external generator as grayscale images named exactly like
// the photo they belong to: 255 marks pixels to exclude, 0 pixels to keep. Binding is
// a single pass over the photo list; photos with no mask file are reported as a
// warning list and processed unmasked.
package mask
