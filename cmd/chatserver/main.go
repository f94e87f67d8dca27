// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"log"
	"os"

	"github.com/urfave/cli"

	"github.com/randydom/chatroom/internal/chat"
	"github.com/randydom/chatroom/internal/server"
)

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "chatserver"
	myApp.Usage = "chat protocol server"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "listen, l",
			Value: ":3333",
			Usage: "server listen address, eg: \"0.0.0.0:3333\"",
		},
		cli.IntFlag{
			Name:  "maxconn, m",
			Value: server.DefaultMaxConnections,
			Usage: "maximum number of simultaneous connections",
		},
		cli.StringFlag{
			Name:  "log",
			Usage: "redirect log output to this file instead of stderr",
		},
	}
	myApp.Action = func(c *cli.Context) error {
		listen := c.String("listen")
		if c.NArg() > 0 {
			listen = ":" + c.Args().First()
		}

		if logPath := c.String("log"); logPath != "" {
			f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			checkError(err)
			defer f.Close()
			log.SetOutput(f)
		}

		log.Println("version:", VERSION)

		app := chat.NewApp()
		srv := server.New(app, server.Config{
			ListenAddr:     listen,
			MaxConnections: c.Int("maxconn"),
		})
		checkError(srv.Run())
		return nil
	}

	checkError(myApp.Run(os.Args))
}

func checkError(err error) {
	if err != nil {
		log.Printf("%+v\n", err)
		os.Exit(-1)
	}
}
