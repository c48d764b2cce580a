package main

import (
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	numbank "github.com/shabbyrobe/go-numbank"
)

// Small driver for the CRT solvers. Each argument is a modulus:residue
// pair; the combined value is printed on stdout. With -v the pool
// statistics are dumped before and after the context is closed, which is a
// quick way to see banks being drained.

const usage = `CRT solver

Usage: crt [-class <bits>] [-product] [-v] <modulus:residue>...`

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	class := flag.Int("class", int(numbank.C1024), "Capacity class in bits")
	product := flag.Bool("product", false, "Use the running-product solver")
	verbose := flag.Bool("v", false, "Log fallbacks and dump pool statistics")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Println(usage)
		return fmt.Errorf("missing args")
	}

	cfg := numbank.DefaultConfig()
	if *verbose {
		cfg.Logger = log.New(os.Stderr, "", 0)
	}
	ctx := numbank.NewContext(&cfg)
	cls := numbank.Class(*class)

	var vals, res, radix []*numbank.Mod
	defer func() {
		for _, set := range [][]*numbank.Mod{vals, res, radix} {
			for _, m := range set {
				m.Release()
			}
		}
		ctx.Close()
		if *verbose {
			spew.Dump(ctx.Stats())
		}
	}()

	for _, arg := range args {
		parts := strings.SplitN(arg, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("expected modulus:residue, found %q", arg)
		}
		m, ok := new(big.Int).SetString(parts[0], 0)
		if !ok {
			return fmt.Errorf("invalid modulus %q", parts[0])
		}
		r, ok := new(big.Int).SetString(parts[1], 0)
		if !ok {
			return fmt.Errorf("invalid residue %q", parts[1])
		}
		v, err := numbank.NewMod(ctx, cls, m)
		if err != nil {
			return err
		}
		v.Set(r)
		vals = append(vals, v)
		res = append(res, numbank.NewModDefault(ctx, cls))
		radix = append(radix, numbank.NewModDefault(ctx, cls))
	}

	dst := numbank.NewUint(ctx, cls)
	defer dst.Release()

	var err error
	if *product {
		err = numbank.CRTProduct(dst, vals, res)
	} else {
		err = numbank.CRT(dst, vals, res, radix)
	}
	if err != nil {
		return err
	}
	fmt.Println(dst)

	if *verbose {
		spew.Dump(ctx.Stats())
	}
	return nil
}
