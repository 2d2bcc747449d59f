// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 execution 在隔离环境中执行模型提出的 shell 命令。

# 概述

对话驱动每收到一个 local_shell_call，就交给 CommandExecutor 执行，
拿回退出码与 stdout/stderr。后端只连接已存在的环境，不负责创建或销毁。

# 核心接口

  - CommandExecutor：Execute / Name 两项操作。
  - DockerBackend：通过 docker exec 在运行中的容器内执行，
    工作目录相对 /workspace 解析，env 按键排序传入，timeout_ms 生效。
  - SandboxBackend：通过 Sandbox 接口在沙箱内执行；ModalCLISandbox
    使用 modal container exec。退出码固定为 0，env/timeout
    默认忽略并告警，StrictOptions 下返回 ErrUnsupportedOption。
  - Runner：进程启动抽象，测试中替换为 RunnerFunc。
  - Instrumented：为每次执行记录 span 与 Prometheus 指标。

# 错误

非零退出码不是错误。超时返回 types.ErrExecutionTimeout，
进程无法启动返回 types.ErrBackendFailure，两者都原样冒泡到调用方。
*/
package execution
