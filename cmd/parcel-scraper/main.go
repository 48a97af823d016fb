package main

import "parcel-scraper/cmd/parcel-scraper/cmd"

func main() {
	cmd.Execute()
}
