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
	"bufio"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/urfave/cli"

	"github.com/randydom/chatroom/internal/client"
)

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "chatclient"
	myApp.Usage = "chat protocol client"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "addr, a",
			Value: "127.0.0.1",
			Usage: "server address",
		},
		cli.StringFlag{
			Name:  "port, p",
			Value: "3333",
			Usage: "server port",
		},
	}
	myApp.Action = func(c *cli.Context) error {
		addr := c.String("addr")
		port := c.String("port")
		if c.NArg() >= 2 {
			addr = c.Args().Get(0)
			port = c.Args().Get(1)
		}

		conn, err := net.Dial("tcp", net.JoinHostPort(addr, port))
		checkError(err)
		defer conn.Close()

		session := client.NewSession(conn, os.Stdout)

		readErr := make(chan error, 1)
		go func() { readErr <- session.Run() }()

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			cmd, err := client.ParseCommand(scanner.Text(), os.Stderr)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if cmd == nil {
				continue
			}
			if err := session.Dispatch(cmd); err != nil {
				fmt.Fprintln(os.Stderr, "<*CLIENT*>: connection error:", err)
				return nil
			}
			if cmd.Kind == client.CmdQuit {
				return nil
			}
		}

		<-readErr
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
