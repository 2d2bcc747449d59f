// Package tlsutil 提供集中式 TLS 配置，
// 为模型客户端与 HTTP 日志 sink 提供安全加固的 HTTP 客户端（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
