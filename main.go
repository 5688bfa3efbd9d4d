package main

import "github.com/namvu/quizbridge/cmd"

func main() {
	cmd.Execute()
}
