// Package process terminates headless browser process trees left behind by
// the PDF renderers.
package process
