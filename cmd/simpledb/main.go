// Command simpledb is the CLI client for the simpledb engine (spec §6):
// it either opens a database directory directly (embedded mode) or talks
// to a running simpledbd over gRPC (remote mode via -addr), reading
// semicolon-terminated SQL statements from stdin the way the teacher's
// cmd/repl does.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	simpledb "github.com/flowlight0/simpledb-go"
	"github.com/flowlight0/simpledb-go/internal/rpc"
	"github.com/flowlight0/simpledb-go/internal/seed"
)

var (
	flagDir  = flag.String("dir", "", "database directory to open (embedded mode)")
	flagAddr = flag.String("addr", "", "simpledbd address to connect to (remote mode, e.g. localhost:9090)")
	flagSeed = flag.Bool("seed", false, "populate the demo schema before entering the REPL (embedded mode only)")
)

// backend abstracts the embedded and remote execution paths behind one
// interface so the REPL loop itself does not care which is in play.
type backend interface {
	Exec(sql string) (int, error)
	Query(sql string) ([]string, []map[string]any, error)
	Close() error
}

type embeddedBackend struct {
	driver *simpledb.Driver
	conn   *simpledb.Connection
}

func (b *embeddedBackend) Exec(sql string) (int, error) {
	return b.conn.CreateStatement().ExecuteUpdate(sql)
}

func (b *embeddedBackend) Query(sql string) ([]string, []map[string]any, error) {
	rs, err := b.conn.CreateStatement().ExecuteQuery(sql)
	if err != nil {
		return nil, nil, err
	}
	defer rs.Close()
	cols := make([]string, rs.ColumnCount())
	for i := range cols {
		cols[i] = rs.ColumnName(i)
	}
	var rows []map[string]any
	for {
		ok, err := rs.Next()
		if err != nil {
			return cols, rows, err
		}
		if !ok {
			break
		}
		row := make(map[string]any, len(cols))
		for i, name := range cols {
			if rs.ColumnType(i) == simpledb.TypeI32 {
				v, err := rs.GetI32(name)
				if err != nil {
					return cols, rows, err
				}
				if !rs.WasNull() {
					row[name] = v
				}
				continue
			}
			v, err := rs.GetString(name)
			if err != nil {
				return cols, rows, err
			}
			if !rs.WasNull() {
				row[name] = v
			}
		}
		rows = append(rows, row)
	}
	return cols, rows, nil
}

func (b *embeddedBackend) Close() error {
	if err := b.conn.Close(); err != nil {
		return err
	}
	return b.driver.Close()
}

type remoteBackend struct {
	client *rpc.Client
}

func (b *remoteBackend) Exec(sql string) (int, error) { return b.client.Exec(sql) }
func (b *remoteBackend) Query(sql string) ([]string, []map[string]any, error) {
	return b.client.Query(sql)
}
func (b *remoteBackend) Close() error { return b.client.Close() }

func main() {
	flag.Parse()

	be, err := open()
	if err != nil {
		fmt.Fprintln(os.Stderr, "open error:", err)
		os.Exit(1)
	}
	defer be.Close()

	if *flagSeed {
		eb, ok := be.(*embeddedBackend)
		if !ok {
			fmt.Fprintln(os.Stderr, "-seed requires embedded mode (-dir)")
			os.Exit(1)
		}
		if err := seed.Seed(eb.conn.CreateStatement()); err != nil {
			fmt.Fprintln(os.Stderr, "seed error:", err)
			os.Exit(1)
		}
	}

	runREPL(be)
}

func open() (backend, error) {
	switch {
	case *flagAddr != "":
		c, err := rpc.Dial(*flagAddr)
		if err != nil {
			return nil, err
		}
		return &remoteBackend{client: c}, nil
	case *flagDir != "":
		d, err := simpledb.Open(*flagDir)
		if err != nil {
			return nil, err
		}
		conn, err := d.Connect()
		if err != nil {
			d.Close()
			return nil, err
		}
		return &embeddedBackend{driver: d, conn: conn}, nil
	default:
		return nil, fmt.Errorf("one of -dir or -addr is required")
	}
}

// runREPL reads semicolon-terminated statements from stdin and runs each
// against be, printing SELECT results as a simple column table and
// DML/DDL results as an affected-row count.
func runREPL(be backend) {
	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 1024), 4*1024*1024)

	interactive := false
	if fi, err := os.Stdin.Stat(); err == nil {
		interactive = (fi.Mode() & os.ModeCharDevice) != 0
	}

	var buf strings.Builder
	for {
		if interactive {
			if buf.Len() == 0 {
				fmt.Print("simpledb> ")
			} else {
				fmt.Print(" ... ")
			}
		}
		if !sc.Scan() {
			break
		}
		buf.WriteString(sc.Text())
		buf.WriteByte('\n')
		if !strings.Contains(sc.Text(), ";") {
			continue
		}
		stmt := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(buf.String()), ";"))
		buf.Reset()
		if stmt == "" {
			continue
		}
		runOne(be, stmt)
	}
}

func runOne(be backend, sql string) {
	upper := strings.ToUpper(strings.TrimSpace(sql))
	if strings.HasPrefix(upper, "SELECT") {
		cols, rows, err := be.Query(sql)
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERR:", err)
			return
		}
		printTable(cols, rows)
		return
	}
	n, err := be.Exec(sql)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERR:", err)
		return
	}
	fmt.Printf("OK (%d rows affected)\n", n)
}

func printTable(cols []string, rows []map[string]any) {
	fmt.Println(strings.Join(cols, "\t"))
	for _, row := range rows {
		vals := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := row[c]; ok {
				vals[i] = fmt.Sprintf("%v", v)
			} else {
				vals[i] = "NULL"
			}
		}
		fmt.Println(strings.Join(vals, "\t"))
	}
}
