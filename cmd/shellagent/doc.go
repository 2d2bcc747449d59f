// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 ShellAgent 命令行入口。

# 概述

cmd/shellagent 读取请求文本（-c 或 -f），按配置构建模型客户端、
执行后端和运行记录 sink，运行一次对话循环并把最终回答打印到标准输出。
任何错误都以非零状态退出。

# 配置优先级

默认值 → YAML 文件（--config）→ SHELLAGENT_ 环境变量 → 命令行参数。

# 运行记录

未指定 --logger 时，交互式运行输出到控制台；设置了 --unattended
或存在 MODAL_SANDBOX_ID 环境变量时写入 --log-file 指定的文件。

# 构建注入

Version、BuildTime、GitCommit 通过 ldflags 设置。
*/
package main
