package main

import "github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/cmd"

func main() {
	cmd.Execute()
}
