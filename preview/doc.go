// Package preview composes a rendered surface and the pipeline's status into
// a single image.
//
// The image shows the surface at the top and a status panel below it: the
// prompt, the first lines of the generated shader text and, when the last
// submission failed, its error line. It is the headless counterpart of an
// interactive shader page and is what the command line tool writes to disk.
package preview
