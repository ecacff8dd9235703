// tokengen 用配置中的jwt.secret为操作员签发访问令牌
//
//	go run ./cmd/tokengen -user 1 -nickname warehouse
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/xiebiao/smb-erp/internal/infrastructure/config"
	"github.com/xiebiao/smb-erp/pkg/jwt"
)

func main() {
	userID := flag.Uint("user", 0, "用户ID(必填)")
	email := flag.String("email", "", "邮箱")
	nickname := flag.String("nickname", "", "昵称，写入流水和审计的操作人")
	expire := flag.Duration("expire", 0, "有效期，默认使用jwt.expire")
	flag.Parse()

	if *userID == 0 {
		log.Fatal("必须指定 -user")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	ttl := cfg.JWT.Expire
	if *expire > 0 {
		ttl = *expire
	}

	token, expiresAt, err := jwt.NewManager(cfg.JWT.Secret, ttl).GenerateToken(*userID, *email, *nickname)
	if err != nil {
		log.Fatalf("签发失败: %v", err)
	}
	fmt.Println(token)
	fmt.Printf("# 过期时间: %s\n", expiresAt.Format(time.RFC3339))
}
