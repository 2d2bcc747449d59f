// Package config 提供 ShellAgent 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（SHELLAGENT_ 前缀）的顺序叠加，
// 最后运行注册的验证器。包本身不读取命令行参数，CLI 负责把 flag
// 覆盖到加载结果上。
package config
