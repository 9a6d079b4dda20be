// Package main provides the asset-library command line tool.
package main

func main() {
	Execute()
}
