package main

import "cart-ratings-backend/cmd"

func main() {
	cmd.Run()
}
