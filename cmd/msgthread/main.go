package main

import "github.com/lu-zhengda/msgthread/internal/cli"

func main() {
	cli.Execute()
}
