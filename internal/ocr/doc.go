// Package ocr extracts the full text of an image through a pluggable engine:
// Google Cloud Vision text detection or a local Tesseract install.
package ocr
