package main

import (
	"github.com/airenas/asrjobs/internal/app/jobs"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	jobs.Execute(version)
}

var (
	version string
)

func printBanner() {
	banner := `
                     _       __        
  ____ ______  _____(_)___  / /_  _____
 / __ ` + "`" + `/ ___/ ___/ / / __ \/ __ \/ ___/
/ /_/ (__  ) /  / / / /_/ / /_/ (__  ) 
\__,_/____/_/ __/ /\____/_.___/____/  v: %s
             /___/                     
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("github.com/airenas/asrjobs"))
}
