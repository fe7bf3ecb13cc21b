package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lunaria/gallery-backend/internal/services"
	"github.com/lunaria/gallery-backend/pkg/uploader"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "API server base URL")
	token := flag.String("token", "", "admin access token")
	concurrency := flag.Int("concurrency", 3, "number of concurrent uploads")
	title := flag.String("title", "", "shared title for all items")
	description := flag.String("description", "", "shared description for all items")
	category := flag.String("category", "", "shared category for all items")
	postID := flag.String("post", "", "post id to attach items to")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		log.Fatal("usage: uploader [flags] file...")
	}

	// Group by basename so Live Photo pairs upload as one item. The
	// grouper only inspects names, so full paths pass through intact.
	files := make([]services.RawFile, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			log.Fatalf("cannot read %s: %v", p, err)
		}
		if !services.IsImageFile(p, "") && !services.IsVideoFile(p, "") {
			log.Printf("跳过 %s：不支持的文件类型", p)
			continue
		}
		files = append(files, services.RawFile{Name: p})
	}
	groups := services.GroupFiles(files)

	q := uploader.New(*server+"/api/v1/admin/gallery/upload", *token, *concurrency)
	queued := 0
	for _, g := range groups {
		if g.Image == nil {
			log.Printf("跳过 %s：缺少图片文件", g.Key)
			continue
		}
		item := uploader.Item{
			Key:         g.Key,
			ImagePath:   g.Image.Name,
			Title:       *title,
			Description: *description,
			Category:    *category,
			PostID:      *postID,
		}
		if g.Video != nil {
			item.VideoPath = g.Video.Name
		}
		q.Add(item)
		queued++
	}
	if queued == 0 {
		log.Fatal("没有可上传的项目")
	}

	q.OnChange(func(index int, it uploader.Item) {
		switch it.Status {
		case uploader.StatusUploading:
			if it.Progress > 0 {
				fmt.Printf("\r%-24s %3.0f%%", it.Key, it.Progress*100)
			}
		case uploader.StatusDone:
			fmt.Printf("\r%-24s 完成 (id=%s)\n", it.Key, it.ImageID)
		case uploader.StatusError:
			fmt.Printf("\r%-24s 失败：%s\n", it.Key, it.Err)
		case uploader.StatusCancelled:
			fmt.Printf("\r%-24s 已取消\n", it.Key)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Leave guard: while uploads are in flight the first interrupt only
	// warns; a second interrupt abandons them.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		if q.Active() {
			log.Println("上传仍在进行中，再按一次 Ctrl+C 放弃未完成的上传")
			<-sigCh
		}
		cancel()
	}()

	q.Run(ctx)

	ok, failed, cancelled := 0, 0, 0
	for _, it := range q.Items() {
		switch it.Status {
		case uploader.StatusDone:
			ok++
		case uploader.StatusError:
			failed++
		case uploader.StatusCancelled, uploader.StatusIdle:
			cancelled++
		}
	}
	fmt.Printf("完成：成功 %d，失败 %d，取消 %d\n", ok, failed, cancelled)
	if ok == 0 {
		os.Exit(1)
	}
}
