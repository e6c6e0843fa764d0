package main

import (
	"flag"
	"fmt"
	"livechat/infrastructure/storage"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "doc:messages:", "Prefix to scan")
	uid := flag.String("uid", "", "Highlight the messages of this author")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Time", "ID", "Author", "Text"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			err := item.Value(func(v []byte) error {
				var record structpb.Struct
				if err := proto.Unmarshal(v, &record); err != nil {
					// A broken record must not hide the others
					color.Red.Printf("Error unmarshaling key %s: %v\n", rawKey, err)
					return nil
				}

				message, err := storage.DecodeMessage(rawKey[strings.LastIndex(rawKey, ":")+1:], &record)
				if err != nil {
					color.Red.Printf("Error decoding key %s: %v\n", rawKey, err)
					return nil
				}

				displayID := message.ID
				if len(displayID) > 8 {
					displayID = displayID[:8]
				}
				author := message.UID
				if *uid != "" && message.IsOwnedBy(*uid) {
					author = color.Green.Sprint(author)
				}

				table.Append([]string{
					rawKey,
					message.CreatedAt.Format("2006-01-02 15:04:05"),
					displayID,
					author,
					message.Text,
				})
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	color.Cyan.Printf("%d record(s) under %q\n", count, *prefix)
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil {
		// A store that was not closed cleanly needs one write open to truncate its log
		if strings.Contains(err.Error(), "Log truncate required") {
			fmt.Println("Repairing value log before inspection")

			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			_ = db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
